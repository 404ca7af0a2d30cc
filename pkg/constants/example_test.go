package constants_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentstation/armory/pkg/constants"
)

// Example demonstrates using constants for common operations
func Example() {
	dir, err := os.MkdirTemp("", "armory-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	store := filepath.Join(dir, "store")
	if err := os.MkdirAll(store, constants.DirPermissions); err != nil {
		panic(err)
	}

	file := filepath.Join(store, constants.LocalTable+".csv")
	if err := os.WriteFile(file, []byte("a,b\n"), constants.FilePermissions); err != nil {
		panic(err)
	}

	fmt.Printf("Created dir with %o permissions\n", constants.DirPermissions)
	fmt.Printf("Created %s with %o permissions\n", filepath.Base(file), constants.FilePermissions)
	// Output:
	// Created dir with 755 permissions
	// Created all_normalized.csv with 644 permissions
}

// Example_tables shows how a partition maps to its normalized table
func Example_tables() {
	partition := "alpha"
	fmt.Println(partition + constants.NormalizedSuffix)
	fmt.Println(constants.LocalTable, "vs", constants.AuthorityTable)
	fmt.Println(constants.FlatReportTable)
	// Output:
	// alpha_normalized
	// all_normalized vs gdud
	// all_issues_diff
}

// Example_timeouts demonstrates timeout constants
func Example_timeouts() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.SyncTimeout)
	defer cancel()

	deadline, ok := ctx.Deadline()
	fmt.Println("has deadline:", ok && !deadline.IsZero())
	fmt.Println("watch interval:", constants.DefaultWatchInterval)
	// Output:
	// has deadline: true
	// watch interval: 1m0s
}
