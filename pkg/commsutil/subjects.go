package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectAdvance = "dapp.wallet.advance"
	SubjectInspect = "dapp.wallet.inspect"
	SubjectOutputs = "dapp.wallet.outputs"

	outputSubjectRoot = "dapp.wallet.output"
)

// BuildOutputSubject builds the per-kind subject an output is published on.
func BuildOutputSubject(kind string) string {
	return fmt.Sprintf("%s.%s", outputSubjectRoot, strings.ToLower(kind))
}

// BuildServiceSubject prefixes subject with a service namespace so several
// DApp instances can share one broker. An empty namespace leaves it unchanged.
func BuildServiceSubject(namespace, subject string) string {
	namespace = strings.Trim(namespace, ".")
	if namespace == "" {
		return subject
	}
	return namespace + "." + subject
}
