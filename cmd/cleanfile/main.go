// Command cleanfile removes commas, quotes, control characters,
// non-printable characters and edge whitespace from every cell of an Excel,
// CSV or text file and reports what it removed.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
