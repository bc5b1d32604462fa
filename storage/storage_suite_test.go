// Package storage tests: Ginkgo/Gomega, mirroring mirror/mirror_suite_test.go's
// fixture-per-spec style for exercising the replica/migration case table.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package storage_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "storage Suite")
}
