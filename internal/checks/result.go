package checks

// Result is the canonical outcome of one check against one repository.
//
// Fixed=true is only valid together with Compliant=true. Compliant=false
// with Error set means execution failed; Compliant=false without Error is a
// genuine policy violation.
type Result struct {
	Compliant bool           `json:"compliant"`
	Fixed     bool           `json:"fixed,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func Compliant(message string) Result {
	return Result{Compliant: true, Message: message}
}

func CompliantWithDetails(message string, details map[string]any) Result {
	return Result{Compliant: true, Message: message, Details: details}
}

// NonCompliant records a violation along with the remediation descriptions
// under the "actions_needed" detail, which the fix path and the dry-run
// report both rely on.
func NonCompliant(message string, actionsNeeded []string) Result {
	details := map[string]any{}
	if len(actionsNeeded) > 0 {
		details["actions_needed"] = actionsNeeded
	}
	return Result{Compliant: false, Message: message, Details: details}
}

func ErrorResult(message string, err error) Result {
	r := Result{Compliant: false, Message: message}
	if err != nil {
		r.Error = err.Error()
	} else {
		r.Error = message
	}
	return r
}

func (r Result) actionsNeeded() []string {
	if r.Details == nil {
		return nil
	}
	needed, _ := r.Details["actions_needed"].([]string)
	return needed
}
