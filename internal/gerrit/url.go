package gerrit

import "regexp"

// connectionRe decomposes a Gerrit connection string of the form
// scheme://user@host:port/project. The groups are intentionally greedy and
// the pattern is unanchored; inputs with extra delimiter characters split
// deterministically but not necessarily the way a strict URL parser would
// (e.g. "ssh://a@b@host:29418/proj" yields user "a@b"). Existing callers
// depend on that split, so don't tighten this.
var connectionRe = regexp.MustCompile(`(.+)://(.+)@(.+):(.+)/(.+)`)

// SplitConnectionString splits a connection string into its five parts:
// scheme, user, host, port, project. It returns nil when the input does not
// match; it never returns a partial result.
func SplitConnectionString(s string) []string {
	m := connectionRe.FindStringSubmatch(s)
	if len(m) != 6 {
		return nil
	}
	return m[1:]
}

// Connection is the named form of a split connection string.
type Connection struct {
	Scheme  string
	User    string
	Host    string
	Port    string
	Project string
}

// ParseConnection splits s and returns the parts by name. The second return
// is false when s does not match the connection-string shape.
func ParseConnection(s string) (*Connection, bool) {
	parts := SplitConnectionString(s)
	if parts == nil {
		return nil, false
	}
	return &Connection{
		Scheme:  parts[0],
		User:    parts[1],
		Host:    parts[2],
		Port:    parts[3],
		Project: parts[4],
	}, true
}

// String reassembles the connection string.
func (c *Connection) String() string {
	return c.Scheme + "://" + c.User + "@" + c.Host + ":" + c.Port + "/" + c.Project
}
