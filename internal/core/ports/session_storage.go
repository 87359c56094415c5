package ports

import "context"

// StoredSession is the raw content of durable client storage: the "token" key
// and the serialised identity under the "user" key. Either may be empty.
type StoredSession struct {
	Token string
	User  string
}

// Complete reports whether both keys are present.
func (s StoredSession) Complete() bool {
	return s.Token != "" && s.User != ""
}

// Empty reports whether neither key is present.
func (s StoredSession) Empty() bool {
	return s.Token == "" && s.User == ""
}

// SessionStorage is the durable client storage holding the session pair.
// Save and Clear write both keys atomically; a concurrent Load never observes
// only one of them changed.
type SessionStorage interface {
	Load(ctx context.Context) (StoredSession, error)
	Save(ctx context.Context, token, user string) error
	Clear(ctx context.Context) error
}
