package main

import (
	formatter "github.com/bluexlab/logrus-formatter"
	"github.com/openebl/pkiconsole/pkg/console/cli"
)

func main() {
	formatter.InitLogger()
	cli := cli.App{}
	cli.Run()
}
