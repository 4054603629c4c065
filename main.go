package main

import (
	"github.com/leighmacdonald/tindex/cmd"
	_ "github.com/leighmacdonald/tindex/store/memory"
	_ "github.com/leighmacdonald/tindex/store/mysql"
	_ "github.com/leighmacdonald/tindex/store/postgres"
	_ "github.com/leighmacdonald/tindex/store/redis"
)

func main() {
	cmd.Execute()
}
