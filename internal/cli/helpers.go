package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	AssessmentKind = "assessment"
)

var (
	pluralKinds = map[string]string{
		AssessmentKind: "assessments",
	}
)

// parseAndValidateKindId accepts "assessments", "assessment/<id>" or "assessment <id>".
func parseAndValidateKindId(args []string) (string, *uuid.UUID, error) {
	kind, idStr, _ := strings.Cut(args[0], "/")
	if idStr == "" && len(args) > 1 {
		idStr = args[1]
	}
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", nil, fmt.Errorf("invalid resource kind: %s", kind)
	}
	if idStr == "" {
		return kind, nil, nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", nil, fmt.Errorf("invalid ID: %w", err)
	}
	return kind, &id, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}

func plural(kind string) string {
	return pluralKinds[kind]
}
