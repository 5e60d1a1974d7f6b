package cmd

import (
	"fmt"

	"github.com/fclairamb/cfpub/internal/publish"
)

// printListener reports publish progress on stdout, one line per operation,
// in the exact order operations occur.
//
//nolint:forbidigo // CLI user output function
func printListener(event publish.Event) {
	switch e := event.(type) {
	case publish.PageAdded:
		fmt.Printf("Added page %q (id %s)\n", e.Page.Title, e.Page.ID)
	case publish.PageUpdated:
		fmt.Printf("Updated page %q (id %s, version %d -> %d)\n",
			e.After.Title, e.After.ID, e.Before.Version, e.After.Version)
	case publish.PageDeleted:
		fmt.Printf("Deleted page %q (id %s)\n", e.Page.Title, e.Page.ID)
	case publish.Completed:
		fmt.Println("Documentation successfully published to Confluence")
	}
}
