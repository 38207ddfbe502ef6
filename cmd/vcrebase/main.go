// Command vcrebase drives interactive rebases, cherry-picks, and
// merges against a git repository from the command line.
package main

import (
	"github.com/mndrix/vcrebase/commands"
)

func main() {
	commands.Execute()
}
