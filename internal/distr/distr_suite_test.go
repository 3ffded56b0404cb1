package distr_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDistr(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Distr Suite")
}
