package main

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/shaiso/s3relay/internal/config"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("s3relay", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Int("max-workers", 1, "")
	fs.String("access-key", "", "")
	fs.String("secret-key", "", "")
	fs.String("config", "", "")
	return fs
}

func TestFlagOverrides_OnlyChanged(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse([]string{"--max-workers", "4", "--secret-key=s3cr3t", "--config", "x.yml"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := flagOverrides(fs)

	if len(got) != 2 {
		t.Fatalf("expected 2 overrides, got %v", got)
	}
	if got["max_workers"] != "4" {
		t.Errorf("max_workers: expected 4, got %q", got["max_workers"])
	}
	if got["s3_secret_key"] != "s3cr3t" {
		t.Errorf("s3_secret_key: expected s3cr3t, got %q", got["s3_secret_key"])
	}
	if _, ok := got["debug"]; ok {
		t.Error("unset debug flag must not override the file")
	}
}

func TestFlagOverrides_None(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := flagOverrides(fs); len(got) != 0 {
		t.Errorf("expected no overrides, got %v", got)
	}
}

func TestDialConfig(t *testing.T) {
	cfg := config.Config{
		MQHost:         "mq.local",
		MQPort:         5672,
		MQQueueManager: "QM1",
		MQChannel:      "DEV.APP.SVRCONN",
		MQUser:         "app",
		MQPassword:     "pw",
	}

	dc := dialConfig(cfg)
	if dc.URL != "amqp://app:pw@mq.local:5672/QM1" {
		t.Errorf("unexpected url %q", dc.URL)
	}
	if dc.Name != "DEV.APP.SVRCONN" {
		t.Errorf("expected channel as connection name, got %q", dc.Name)
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := config.Config{S3Host: "s3.local", S3Port: 9000, S3IsSecure: true, S3AccessKey: "ak", S3SecretKey: "sk"}

	sc := storageConfig(cfg)
	if sc.Endpoint != "s3.local:9000" || !sc.Secure || sc.AccessKey != "ak" || sc.SecretKey != "sk" {
		t.Errorf("unexpected storage config: %+v", sc)
	}
}
