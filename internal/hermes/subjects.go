package hermes

import "strings"

const (
	SubjectAllConsensusUpdated = "tally.consensus.*.updated"
	SubjectAllScoresRecorded   = "tally.score.*.recorded"

	StreamName     = "TALLY_EVENTS"
	StreamSubjects = "tally.>"
	StreamMaxAge   = "720h" // 30 days
)

func SubjectSubmissionScored(submissionID string) string {
	return "tally.submission." + token(submissionID) + ".scored"
}
func SubjectScoreRecorded(submissionID string) string {
	return "tally.score." + token(submissionID) + ".recorded"
}
func SubjectConsensusUpdated(submissionID string) string {
	return "tally.consensus." + token(submissionID) + ".updated"
}
func SubjectRubricWeightWarning(rubricID string) string {
	return "tally.rubric." + token(rubricID) + ".weight_warning"
}
func SubjectPrequalScored(vendorID string) string {
	return "tally.prequal." + token(vendorID) + ".scored"
}

// SubmissionFromSubject extracts the id token from a tally.<kind>.<id>.<verb> subject.
func SubmissionFromSubject(subject string) (string, bool) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 || parts[0] != "tally" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// token keeps caller ids from introducing extra subject levels or wildcards.
func token(id string) string {
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(id)
}
