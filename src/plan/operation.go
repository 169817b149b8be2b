package plan

import (
	"fmt"

	"github.com/postgis/imagectl/src/matrix"
)

// Kind identifies what an operation does.
type Kind string

const (
	KindBuild       Kind = "build"
	KindTestPrepare Kind = "test-prepare"
	KindTest        Kind = "test"
	KindPush        Kind = "push"
	KindTagLatest   Kind = "tag-latest"
	KindPushLatest  Kind = "push-latest"
)

// Operation is one node of the plan.
type Operation struct {
	ID   string
	Kind Kind
	// Target is the build target the operation acts on. For test-prepare
	// it is the zero value; for the latest operations it is the latest
	// default target.
	Target matrix.BuildTarget
	Deps   []string
}

// OpID returns the operation ID for kind on target, e.g. "build-17-3.5-alpine".
func OpID(kind Kind, t matrix.BuildTarget) string {
	return fmt.Sprintf("%s-%s", kind, t.Tag())
}

func (o Operation) String() string {
	return o.ID
}
