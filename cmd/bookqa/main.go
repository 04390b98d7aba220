// bookqa 从书籍文档生成 QA 数据集的命令行工具
package main

import (
	"log"

	"github.com/ashwinyue/bookqa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
