package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyStatement(t *testing.T) {
	stmt := copyStatement(
		"https://earthquake.usgs.gov/fdsnws/event/1/query?format=csv&starttime=2025-05-01&endtime=2025-05-02",
		"s3://prod/raw/earthquake/2025-05-01/2025-05-01_00-00-00.gz.parquet",
	)

	assert.Equal(t,
		"COPY (SELECT * FROM read_csv_auto("+
			"'https://earthquake.usgs.gov/fdsnws/event/1/query?format=csv&starttime=2025-05-01&endtime=2025-05-02'"+
			")) TO 's3://prod/raw/earthquake/2025-05-01/2025-05-01_00-00-00.gz.parquet'",
		stmt,
	)
}

func TestConfigureStatements(t *testing.T) {
	stmts := configureStatements(S3Settings{
		Endpoint:  "minio:9000",
		AccessKey: "ak",
		SecretKey: "sk",
	})

	require.Len(t, stmts, 8)

	// Setup order matters: httpfs must be loaded before any s3_* setting
	// takes effect on the connection.
	assert.Equal(t, "SET TIMEZONE='UTC'", stmts[0])
	assert.Equal(t, "INSTALL httpfs", stmts[1])
	assert.Equal(t, "LOAD httpfs", stmts[2])
	assert.Equal(t, "SET s3_url_style='path'", stmts[3])
	assert.Equal(t, "SET s3_endpoint='minio:9000'", stmts[4])
	assert.Equal(t, "SET s3_access_key_id='ak'", stmts[5])
	assert.Equal(t, "SET s3_secret_access_key='sk'", stmts[6])
	assert.Equal(t, "SET s3_use_ssl=false", stmts[7])
}

func TestConfigureStatements_SSL(t *testing.T) {
	stmts := configureStatements(S3Settings{UseSSL: true})
	assert.Contains(t, stmts, "SET s3_use_ssl=true")
}

func TestEscapeSQL(t *testing.T) {
	assert.Equal(t, "plain", escapeSQL("plain"))
	assert.Equal(t, "it''s", escapeSQL("it's"))
	assert.Equal(t, "''''", escapeSQL("''"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "SET s3_access_key_id='***'", redact("SET s3_access_key_id='secret'"))
	assert.Equal(t, "SET s3_secret_access_key='***'", redact("SET s3_secret_access_key='secret'"))
	assert.Equal(t, "SET s3_endpoint='minio:9000'", redact("SET s3_endpoint='minio:9000'"))
}
