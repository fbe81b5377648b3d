package config

import (
	"testing"
	"time"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("REFLECTIO_TEST_INT", "")
	if got := getEnvInt("REFLECTIO_TEST_INT", 3); got != 3 {
		t.Fatalf("getEnvInt = %d", got)
	}
	t.Setenv("REFLECTIO_TEST_INT", "5")
	if got := getEnvInt("REFLECTIO_TEST_INT", 3); got != 5 {
		t.Fatalf("getEnvInt = %d", got)
	}
	t.Setenv("REFLECTIO_TEST_DUR", "90s")
	if got := getEnvDuration("REFLECTIO_TEST_DUR", time.Hour); got != 90*time.Second {
		t.Fatalf("getEnvDuration = %v", got)
	}
	if got := getEnv("REFLECTIO_TEST_UNSET_KEY", "x"); got != "x" {
		t.Fatalf("getEnv = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Fatal("empty input should yield nil")
	}
}
