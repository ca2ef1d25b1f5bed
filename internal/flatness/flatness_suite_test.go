package flatness_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFlatness(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Flatness Suite")
}
