package session

import "time"

// Record is the credential state of one session handle.
//
// Timestamps are Unix milliseconds. Error is empty for a usable session and
// carries the terminal failure tag otherwise.
type Record struct {
	SessionID    string
	SubjectID    string
	Role         string
	AccessToken  string
	RefreshToken string
	Error        string

	AccessExpiry int64
	CreatedAt    int64
	RefreshedAt  int64
}

// Clone returns an independent copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// Expiry returns the instant after which AccessToken must not be used.
func (r *Record) Expiry() time.Time {
	return time.UnixMilli(r.AccessExpiry)
}

// Terminal reports whether the record carries a failure tag.
func (r *Record) Terminal() bool {
	return r != nil && r.Error != ""
}
