// Package jenkins reads Jenkins build history and correlates builds with
// Gerrit changes.
package jenkins

import (
	"strconv"
	"strings"
	"time"
)

// CauseKind tags what started a build.
type CauseKind string

const (
	CauseGerrit CauseKind = "gerrit"
	CauseOther  CauseKind = "other"
)

// Cause is the tagged form of a Jenkins build cause. Downstream code
// matches on Kind and fields only; the raw plugin class names never leave
// the adapter below.
type Cause struct {
	Kind        CauseKind
	Change      int
	Patchset    int
	EventType   string
	Description string
}

// Build is one entry of a job's build history.
type Build struct {
	Number    int
	Result    string
	URL       string
	Timestamp time.Time
	Cause     Cause
}

// rawBuild mirrors the Jenkins JSON API response for
// builds[number,result,timestamp,url,actions[causes[...],parameters[...]]].
type rawBuild struct {
	Number    int    `json:"number"`
	Result    string `json:"result"`
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
	Actions   []struct {
		Causes []struct {
			Class            string `json:"_class"`
			ShortDescription string `json:"shortDescription"`
		} `json:"causes"`
		Parameters []struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"parameters"`
	} `json:"actions"`
}

// adaptBuild converts a raw API build into the tagged form. A build counts
// as Gerrit-triggered when the Gerrit Trigger plugin either contributed a
// cause or injected its GERRIT_* build parameters; the parameters carry the
// change and patchset numbers.
func adaptBuild(raw rawBuild) Build {
	b := Build{
		Number:    raw.Number,
		Result:    raw.Result,
		URL:       raw.URL,
		Timestamp: time.UnixMilli(raw.Timestamp),
		Cause:     Cause{Kind: CauseOther},
	}

	params := map[string]string{}
	for _, action := range raw.Actions {
		for _, p := range action.Parameters {
			if s, ok := p.Value.(string); ok {
				params[p.Name] = s
			}
		}
		for _, c := range action.Causes {
			if strings.Contains(c.Class, "GerritCause") {
				b.Cause.Kind = CauseGerrit
				b.Cause.Description = c.ShortDescription
			} else if b.Cause.Description == "" {
				b.Cause.Description = c.ShortDescription
			}
		}
	}

	if change, ok := params["GERRIT_CHANGE_NUMBER"]; ok {
		b.Cause.Kind = CauseGerrit
		b.Cause.Change, _ = strconv.Atoi(change)
		b.Cause.Patchset, _ = strconv.Atoi(params["GERRIT_PATCHSET_NUMBER"])
		b.Cause.EventType = params["GERRIT_EVENT_TYPE"]
	}

	return b
}

// FilterBuilds keeps builds whose cause is a Gerrit trigger for the given
// change. A zero patchset matches any patchset of the change.
func FilterBuilds(builds []Build, change, patchset int) []Build {
	var out []Build
	for _, b := range builds {
		if b.Cause.Kind != CauseGerrit {
			continue
		}
		if b.Cause.Change != change {
			continue
		}
		if patchset != 0 && b.Cause.Patchset != patchset {
			continue
		}
		out = append(out, b)
	}
	return out
}
