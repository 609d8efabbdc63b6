// Package oastatus defines the open-access availability classification
// shared by papers and publishers, and the pure logic that derives a
// publisher's classification from its archiving policy fields.
package oastatus

// Status is the open-access availability classification of a paper or
// the archiving policy classification of a publisher.
type Status string

const (
	// StatusOA means the full text is openly available from the
	// publisher itself.
	StatusOA Status = "OA"

	// StatusOK means the publisher allows self-archiving of some
	// version of the paper.
	StatusOK Status = "OK"

	// StatusNOK means the publisher policy forbids self-archiving.
	StatusNOK Status = "NOK"

	// StatusUNK means the availability has not been resolved yet.
	StatusUNK Status = "UNK"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOA, StatusOK, StatusNOK, StatusUNK:
		return true
	}
	return false
}

// Resolved reports whether s carries an actual classification,
// as opposed to the UNK placeholder.
func (s Status) Resolved() bool {
	return s.Valid() && s != StatusUNK
}

// Archiving policy field values, as harvested from the publisher-policy
// database. Any other value is treated as unknown.
const (
	PolicyCan        = "can"
	PolicyCannot     = "cannot"
	PolicyRestricted = "restricted"
	PolicyUnknown    = "unknown"
)

// Policy holds the archiving-policy fields of a publisher.
type Policy struct {
	// Preprint is the policy for author manuscripts before review.
	Preprint string

	// Postprint is the policy for accepted manuscripts.
	Postprint string

	// PdfVersion is the policy for the published version.
	PdfVersion string

	// OpenAccess is true when the publisher is a known open-access
	// publisher (e.g. listed in DOAJ).
	OpenAccess bool
}

// Classify derives a publisher's open-access status from its archiving
// policy fields.
//
// An open-access publisher classifies as OA. Otherwise, if any version
// of the paper may be self-archived the publisher classifies as OK; if
// every field is unknown the classification stays UNK; any remaining
// combination forbids archiving and classifies as NOK.
func Classify(p Policy) Status {
	if p.OpenAccess {
		return StatusOA
	}
	fields := []string{p.Preprint, p.Postprint, p.PdfVersion}
	unknown := 0
	for _, f := range fields {
		switch f {
		case PolicyCan:
			return StatusOK
		case PolicyUnknown, "":
			unknown++
		}
	}
	if unknown == len(fields) {
		return StatusUNK
	}
	return StatusNOK
}
