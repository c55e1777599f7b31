package counting

import "fmt"

type Status string

const (
	StatusValid     Status = "VALID"
	StatusDuplicate Status = "DUPLICATE"
	StatusBehind    Status = "BEHIND"
	StatusSkipped   Status = "SKIPPED"
	StatusInvalid   Status = "INVALID"
)

// Verdict is the classification of one submitted number against the high-water mark.
type Verdict struct {
	Status   Status `json:"status"`
	Expected int64  `json:"expected_number"`
	Received int64  `json:"received_number"`
	Message  string `json:"message"`
}

func (v Verdict) Valid() bool { return v.Status == StatusValid }

// Gap is how many numbers a SKIPPED submission jumped over.
func (v Verdict) Gap() int64 {
	if v.Status != StatusSkipped {
		return 0
	}
	return v.Received - v.Expected
}

// Validate classifies received against the current high-water mark. It has no side effects.
func Validate(received, current int64) Verdict {
	expected := current + 1
	v := Verdict{Expected: expected, Received: received}

	switch {
	case received <= 0:
		v.Status = StatusInvalid
		v.Message = fmt.Sprintf("%d is not a valid count", received)
	case received == expected:
		v.Status = StatusValid
		v.Message = fmt.Sprintf("%d", received)
	case received == current:
		v.Status = StatusDuplicate
		v.Message = fmt.Sprintf("%d was already counted, next is %d", received, expected)
	case received < current:
		v.Status = StatusBehind
		v.Message = fmt.Sprintf("%d? we are already at %d, next is %d", received, current, expected)
	case received > expected:
		gap := received - expected
		plural := "s"
		if gap == 1 {
			plural = ""
		}
		v.Status = StatusSkipped
		v.Message = fmt.Sprintf("skipped %d number%s, expected %d", gap, plural, expected)
	default:
		// unreachable for integers; kept so a verdict is always classified
		v.Status = StatusInvalid
		v.Message = "invalid number"
	}
	return v
}

// LostRace builds the verdict reported when a VALID claim lost to a concurrent writer.
// current is the refreshed high-water mark.
func LostRace(received, current int64) Verdict {
	return Verdict{
		Status:   StatusDuplicate,
		Expected: current + 1,
		Received: received,
		Message:  fmt.Sprintf("someone was faster, %d is taken; next is %d", received, current+1),
	}
}

// AlreadyCounted builds the verdict for a resubmitted message whose ref already holds seq.
func AlreadyCounted(received, current, seq int64) Verdict {
	return Verdict{
		Status:   StatusDuplicate,
		Expected: current + 1,
		Received: received,
		Message:  fmt.Sprintf("this message was already counted as %d", seq),
	}
}

// RefInFlight is reported when the claim hit the unique ref of a message that another
// delivery is counting right now. current is the refreshed high-water mark.
func RefInFlight(received, current int64) Verdict {
	return Verdict{
		Status:   StatusDuplicate,
		Expected: current + 1,
		Received: received,
		Message:  fmt.Sprintf("this message is already being counted; next is %d", current+1),
	}
}

// Contended is reported when a claim conflicted but no record could be found holding the
// number, e.g. it was claimed and deleted in between. The caller should resubmit.
func Contended(received, current int64) Verdict {
	return Verdict{
		Status:   StatusDuplicate,
		Expected: current + 1,
		Received: received,
		Message:  fmt.Sprintf("%d could not be claimed, try %d again", received, current+1),
	}
}
