package main

import (
	"bytes"
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv clears env vars used by parseConfig
func resetEnv() {
	os.Clearenv()
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	configPath := parseFlags()
	assert.Equal(t, "config.env", configPath)
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	configPath := parseFlags()
	assert.Equal(t, "myconfig.env", configPath)
}

func TestPrintBuildInfo_Output(t *testing.T) {
	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2025-09-26"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()
	os.Stdout = oldStdout

	assert.True(t, strings.Contains(output, "v1.0.0"))
	assert.True(t, strings.Contains(output, "abcd1234"))
	assert.True(t, strings.Contains(output, "2025-09-26"))
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv()
	os.Setenv("JWT_SECRET_KEY", "test-secret")

	appHost, appPort, logLevel,
		pgHost, pgPort, _, _, _,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, _,
		_, _, userCacheExpSecond,
		kafkaAddr, kafkaTopic,
		jwtSecret, jwtExpSecond, bcryptCost,
		err := parseConfig("nonexistent.env")

	assert.NoError(t, err)
	assert.Equal(t, "localhost", appHost)
	assert.Equal(t, "8080", appPort)
	assert.Equal(t, "info", logLevel)
	assert.Equal(t, "localhost", pgHost)
	assert.Equal(t, 5432, pgPort)
	assert.Equal(t, 16, pgMaxOpenConns)
	assert.Equal(t, 8, pgMaxIdleConns)
	assert.Equal(t, "localhost", redisHost)
	assert.Equal(t, 6379, redisPort)
	assert.Equal(t, 0, redisDB)
	assert.Equal(t, 60, userCacheExpSecond)
	assert.Equal(t, "", kafkaAddr)
	assert.Equal(t, "user-registrations", kafkaTopic)
	assert.Equal(t, "test-secret", jwtSecret)
	assert.Equal(t, 604800, jwtExpSecond) // 7 days
	assert.Equal(t, 10, bcryptCost)
}

func TestParseConfig_MissingSecretFails(t *testing.T) {
	resetEnv()

	_, _, _,
		_, _, _, _, _,
		_, _,
		_, _, _, _,
		_, _, _,
		_, _,
		_, _, _,
		err := parseConfig("nonexistent.env")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestParseConfig_Overrides(t *testing.T) {
	resetEnv()
	os.Setenv("JWT_SECRET_KEY", "test-secret")
	os.Setenv("APP_PORT", "9090")
	os.Setenv("JWT_EXP_SECOND", "3600")
	os.Setenv("BCRYPT_COST", "12")
	os.Setenv("KAFKA_ADDR", "localhost:9092")

	_, appPort, _,
		_, _, _, _, _,
		_, _,
		_, _, _, _,
		_, _, _,
		kafkaAddr, _,
		_, jwtExpSecond, bcryptCost,
		err := parseConfig("nonexistent.env")

	assert.NoError(t, err)
	assert.Equal(t, "9090", appPort)
	assert.Equal(t, 3600, jwtExpSecond)
	assert.Equal(t, 12, bcryptCost)
	assert.Equal(t, "localhost:9092", kafkaAddr)
}

func TestParseConfig_InvalidNumber(t *testing.T) {
	resetEnv()
	os.Setenv("JWT_SECRET_KEY", "test-secret")
	os.Setenv("POSTGRES_PORT", "not-a-number")

	_, _, _,
		_, _, _, _, _,
		_, _,
		_, _, _, _,
		_, _, _,
		_, _,
		_, _, _,
		err := parseConfig("nonexistent.env")

	assert.Error(t, err)
}
