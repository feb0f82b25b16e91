package task

import (
	"testing"

	"github.com/robfig/cron/v3"
)

func TestHourlyCronSpecIsValid(t *testing.T) {
	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	// Start 里写死的整点表达式必须能被秒级解析器接受
	if _, err := parser.Parse("0 0 * * * *"); err != nil {
		t.Fatalf("整点表达式解析失败: %v", err)
	}
}

func TestSyncTask_StartStop(t *testing.T) {
	task := NewSyncTask(nil)

	task.Start()
	if len(task.Cron.Entries()) != 1 {
		t.Errorf("注册的任务数 = %d, want 1", len(task.Cron.Entries()))
	}
	task.Stop()
}
