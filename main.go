// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/texlsp/texindex/cmd/texindex"

func main() {
	cmd.Execute()
}
