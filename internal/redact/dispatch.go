package redact

import (
	"errors"
	"fmt"

	"github.com/dgallion1/blackout/internal/policy"
)

// Message actions accepted by Dispatch.
const (
	ActionPing            = "ping"
	ActionToggle          = "toggleRedaction"
	ActionAutoRedact      = "autoRedact"
	ActionRedactAll       = "redactAll"
	ActionReset           = "reset"
	ActionUndo            = "undo"
	ActionRedo            = "redo"
	ActionHistoryStatus   = "getHistoryStatus"
	ActionRedactSelection = "redactSelection"
	ActionUnredact        = "unredact"
)

// Request is one inbound command message. Pointer fields distinguish unset
// from zero.
type Request struct {
	Action  string `json:"action"`
	Enabled bool   `json:"enabled,omitempty"`

	// autoRedact
	Intensity       *float64 `json:"intensity,omitempty"`
	Mode            string   `json:"mode,omitempty"`
	KeepProperNouns *bool    `json:"keepProperNouns,omitempty"`
	KeepLongWords   *bool    `json:"keepLongWords,omitempty"`
	KeepNumbers     *bool    `json:"keepNumbers,omitempty"`

	// redactSelection: either offsets or text.
	Start      *int   `json:"start,omitempty"`
	End        *int   `json:"end,omitempty"`
	Text       string `json:"text,omitempty"`
	Occurrence int    `json:"occurrence,omitempty"`

	// unredact
	Index int `json:"index,omitempty"`
}

// Response is the reply to a Request.
type Response struct {
	Result
	Pong  bool   `json:"pong,omitempty"`
	Error string `json:"error,omitempty"`
}

// Settings merges the request's autoRedact fields over defaults.
func (r Request) Settings(defaults policy.Settings) policy.Settings {
	s := defaults
	if r.Intensity != nil {
		s.Intensity = *r.Intensity
	}
	if r.Mode != "" {
		s.Mode = policy.Mode(r.Mode)
	}
	if r.KeepProperNouns != nil {
		s.KeepProperNouns = *r.KeepProperNouns
	}
	if r.KeepLongWords != nil {
		s.KeepLongWords = *r.KeepLongWords
	}
	if r.KeepNumbers != nil {
		s.KeepNumbers = *r.KeepNumbers
	}
	return s.Normalize()
}

// Dispatch runs the command named by req.Action. Failures are reported in
// the response; the error return carries the cause for callers that map it.
func (s *Session) Dispatch(req Request) (Response, error) {
	switch req.Action {
	case ActionPing:
		return Response{Result: s.Ping(), Pong: true}, nil
	case ActionToggle:
		return Response{Result: s.Toggle(req.Enabled)}, nil
	case ActionAutoRedact:
		return Response{Result: s.AutoRedact(req.Settings(s.Defaults()))}, nil
	case ActionRedactAll:
		return Response{Result: s.RedactAll()}, nil
	case ActionReset:
		return Response{Result: s.Reset()}, nil
	case ActionUndo:
		return Response{Result: s.Undo()}, nil
	case ActionRedo:
		return Response{Result: s.Redo()}, nil
	case ActionHistoryStatus:
		return Response{Result: Result{Success: true, Status: s.HistoryStatus()}}, nil
	case ActionRedactSelection:
		var (
			res Result
			err error
		)
		switch {
		case req.Start != nil && req.End != nil:
			res, err = s.RedactOffsets(*req.Start, *req.End)
		case req.Text != "":
			res, err = s.RedactText(req.Text, req.Occurrence)
		default:
			err = errors.New("redactSelection needs start and end or text")
			res = Result{Status: s.HistoryStatus()}
		}
		return respond(res, err)
	case ActionUnredact:
		return respond(s.Unredact(req.Index))
	}
	err := fmt.Errorf("unknown action %q", req.Action)
	return Response{Result: Result{Status: s.HistoryStatus()}, Error: err.Error()}, err
}

func respond(res Result, err error) (Response, error) {
	resp := Response{Result: res}
	if err != nil {
		resp.Success = false
		resp.Error = err.Error()
	}
	return resp, err
}
