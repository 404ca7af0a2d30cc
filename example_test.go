package armory_test

import (
	"context"
	"fmt"

	"github.com/agentstation/armory"
	"github.com/agentstation/armory/internal/tables/memory"
	"github.com/agentstation/armory/pkg/logging"
	"github.com/agentstation/armory/pkg/records"
)

// Example compares a merged table with the authority table.
func Example() {
	store := memory.NewWithTables(map[string][][]string{
		"all_normalized": {
			records.HebrewHeader,
			{"פלוגה א", "1", "1001", "כהן", "דנה", "M16", "1", "123", "מנופק"},
		},
		"gdud": {
			records.HebrewHeader,
			{"פלוגה א", "1", "1001", "כהן", "דנה", "M16", "1", "123", "זוכה"},
			{"פלוגה א", "2", "1002", "לוי", "אבי", "M16", "1", "456", "מנופק"},
		},
	})

	a, err := armory.New(armory.WithStore(store), armory.WithLogger(logging.NewNopLogger()))
	if err != nil {
		panic(err)
	}
	defer a.Close()

	report, err := a.Compare(context.Background(), armory.WithoutRoster())
	if err != nil {
		panic(err)
	}
	for _, d := range report.Discrepancies {
		fmt.Println(d.EntityID, d.Category)
	}
	// Output:
	// 1001 status-mismatch
	// 1002 entity-only-in-B
}

// Example_sync shows a second sync being skipped when nothing changed.
func Example_sync() {
	store := memory.NewWithTables(map[string][][]string{
		"all_normalized": {records.HebrewHeader},
		"gdud":           {records.HebrewHeader},
	})

	a, err := armory.New(armory.WithStore(store), armory.WithLogger(logging.NewNopLogger()))
	if err != nil {
		panic(err)
	}
	defer a.Close()

	a.OnSyncSkipped(func(*armory.SyncResult) { fmt.Println("skipped") })

	ctx := context.Background()
	for range 2 {
		if _, err := a.Sync(ctx); err != nil {
			panic(err)
		}
	}
	// Output:
	// skipped
}
