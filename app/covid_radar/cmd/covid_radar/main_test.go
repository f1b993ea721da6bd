package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	base := "db:\n  driver: sqlite\n  path: " + filepath.Join(dir, "radar.db") + "\n" +
		"emit:\n  jsonl_path: " + filepath.Join(dir, "records.jsonl") + "\n" +
		"sources:\n  - key: covid-no\n    url: http://127.0.0.1:1/\n    link_selector: '-'\n    layout: fhi-daily-2020\n"
	conf := writeConfig(t, dir, base)

	tests := []struct {
		name string
		opts options
		want int
	}{
		{"missing config", options{confPath: filepath.Join(dir, "nope.yaml")}, 1},
		{"export", options{confPath: conf, export: "covid-no=" + filepath.Join(dir, "h.xlsx")}, 0},
		{"bad export value", options{confPath: conf, export: "covid-no"}, 1},
		{"once with unreachable source", options{confPath: conf, once: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.opts); got != tt.want {
				t.Errorf("run() = %d, want %d", got, tt.want)
			}
		})
	}

	// run 返回后 sqlite 已关闭，可以再次打开同一个文件
	if got := run(options{confPath: conf, export: "covid-no=" + filepath.Join(dir, "again.xlsx")}); got != 0 {
		t.Errorf("reopen after run() = %d, want 0", got)
	}
}
