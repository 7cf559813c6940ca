// Command gphotocat catalogs a Google Photos Takeout export into a
// queryable SQLite store, grounded on the teacher's main.go entrypoint
// and flag-validation style, rebuilt on cobra per the pack's
// vicendominguez-mediadupes and alexander-bruun-Orb CLIs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
