package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := GitCommit
	defer func() { GitCommit = old }()

	GitCommit = "abc1234"
	assert.Equal(t, "plate-tracker v"+Version+" (abc1234, built "+BuildTime+")", String())
}
