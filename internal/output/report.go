package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/oxhq/cgrep/core"
)

// Format selects how a report is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Timings holds the duration of each pipeline stage in milliseconds
type Timings struct {
	WalkMS   int64 `json:"walk_ms"`
	ParseMS  int64 `json:"parse_ms"`
	SearchMS int64 `json:"search_ms"`
}

// ErrorReport is the machine-readable form of a failed run
type ErrorReport struct {
	Code    core.ErrorCode `json:"code"`
	Message string         `json:"message"`
}

// Report is the serializable outcome of one search
type Report struct {
	RunID    string          `json:"run_id,omitempty"`
	Root     string          `json:"root"`
	Language string          `json:"language"`
	Pattern  string          `json:"pattern,omitempty"`
	Files    int             `json:"files"`
	Matches  int             `json:"matches"`
	Hits     []core.MatchHit `json:"hits"`
	Timings  Timings         `json:"timings"`
	Error    *ErrorReport    `json:"error,omitempty"`
}

// NewReport builds a report from a finished run
func NewReport(root, language string, result *core.Result) *Report {
	r := &Report{
		Root:     root,
		Language: language,
		Hits:     []core.MatchHit{},
	}
	if result == nil {
		return r
	}

	r.Files = len(result.Files)
	r.Matches = result.Matches()
	if result.Hits != nil {
		r.Hits = result.Hits
	}
	if result.Pattern != nil {
		r.Pattern = result.Pattern.Source
	}
	r.Timings = Timings{
		WalkMS:   millis(result.WalkDuration),
		ParseMS:  millis(result.ParseDuration),
		SearchMS: millis(result.SearchDuration),
	}
	return r
}

// NewErrorReport builds the report of a run that failed with err
func NewErrorReport(root, language string, err error) *Report {
	r := NewReport(root, language, nil)
	r.Error = &ErrorReport{Code: core.Code(err), Message: err.Error()}
	return r
}

// Render encodes the report in the given format. Text is one path:row:col
// line per hit.
func (r *Report) Render(format Format) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	for _, hit := range r.Hits {
		buf.WriteString(hit.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
