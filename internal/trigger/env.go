// Package trigger reads the environment the Gerrit Trigger plugin injects
// into Jenkins builds. All environment access lives here; the rest of the
// repo works with the explicit Event struct.
package trigger

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// EnvVar names an environment variable set by the Gerrit Trigger plugin.
type EnvVar string

const (
	VarScheme         EnvVar = "GERRIT_SCHEME"
	VarHost           EnvVar = "GERRIT_HOST"
	VarPort           EnvVar = "GERRIT_PORT"
	VarName           EnvVar = "GERRIT_NAME"
	VarProject        EnvVar = "GERRIT_PROJECT"
	VarBranch         EnvVar = "GERRIT_BRANCH"
	VarRefspec        EnvVar = "GERRIT_REFSPEC"
	VarChangeNumber   EnvVar = "GERRIT_CHANGE_NUMBER"
	VarChangeURL      EnvVar = "GERRIT_CHANGE_URL"
	VarPatchsetNumber EnvVar = "GERRIT_PATCHSET_NUMBER"
	VarPatchsetRev    EnvVar = "GERRIT_PATCHSET_REVISION"
	VarEventType      EnvVar = "GERRIT_EVENT_TYPE"
	VarEventAccount   EnvVar = "GERRIT_EVENT_ACCOUNT"
)

// Event is the decoded trigger environment for one build.
type Event struct {
	Scheme           string
	Host             string
	Port             string
	ServerName       string
	Project          string
	Branch           string
	Refspec          string
	ChangeNumber     string
	ChangeURL        string
	PatchsetNumber   string
	PatchsetRevision string
	EventType        string
	EventAccount     string
}

// FromEnv builds an Event from the given lookup function. A nil lookup
// reads the process environment.
func FromEnv(lookup func(string) string) *Event {
	if lookup == nil {
		lookup = os.Getenv
	}
	get := func(v EnvVar) string { return lookup(string(v)) }

	return &Event{
		Scheme:           get(VarScheme),
		Host:             get(VarHost),
		Port:             get(VarPort),
		ServerName:       get(VarName),
		Project:          get(VarProject),
		Branch:           get(VarBranch),
		Refspec:          get(VarRefspec),
		ChangeNumber:     get(VarChangeNumber),
		ChangeURL:        get(VarChangeURL),
		PatchsetNumber:   get(VarPatchsetNumber),
		PatchsetRevision: get(VarPatchsetRev),
		EventType:        get(VarEventType),
		EventAccount:     get(VarEventAccount),
	}
}

// Present reports whether the environment looks like a Gerrit-triggered
// build at all.
func (e *Event) Present() bool {
	return e.Host != "" || e.ChangeNumber != "" || e.EventType != ""
}

// ConnectionString reassembles the scheme://user@host:port/project form
// from the event. user is supplied by the caller since the trigger plugin
// does not export it.
func (e *Event) ConnectionString(user string) string {
	return fmt.Sprintf("%s://%s@%s:%s/%s", e.Scheme, user, e.Host, e.Port, e.Project)
}

// Validate reports every missing field required for a checkout in one
// error.
func (e *Event) Validate() error {
	missing := missingFields(map[EnvVar]string{
		VarScheme:       e.Scheme,
		VarHost:         e.Host,
		VarPort:         e.Port,
		VarProject:      e.Project,
		VarRefspec:      e.Refspec,
		VarChangeNumber: e.ChangeNumber,
	})
	if len(missing) > 0 {
		return fmt.Errorf("gerrit trigger environment incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func missingFields(fields map[EnvVar]string) []string {
	var missing []string
	for v, val := range fields {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, string(v))
		}
	}
	// map iteration order is random; keep the error stable
	sort.Strings(missing)
	return missing
}
