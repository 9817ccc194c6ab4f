package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, dedupeColumns([]string{"id", "name"}))

	// A two-table join with identical column names on both sides yields
	// stable, unique keys.
	assert.Equal(t,
		[]string{"id", "name", "id_1", "name_1"},
		dedupeColumns([]string{"id", "name", "id", "name"}))

	assert.Equal(t,
		[]string{"x", "x_1", "x_2"},
		dedupeColumns([]string{"x", "x", "x"}))

	assert.Empty(t, dedupeColumns(nil))
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("SELECT * FROM t"))
	assert.True(t, returnsRows("  select 1"))
	assert.True(t, returnsRows("WITH cte AS (SELECT 1) SELECT * FROM cte"))

	// Directive comments before the statement are skipped.
	assert.True(t, returnsRows("/* PAGINATE SIZE 10 */ SELECT * FROM t"))
	assert.True(t, returnsRows("/* NAME x */\n-- note\nSELECT 1"))

	assert.False(t, returnsRows("INSERT INTO t VALUES (1)"))
	assert.False(t, returnsRows("UPDATE t SET a = 1"))
	assert.False(t, returnsRows("CREATE TABLE t (id INT)"))
	assert.False(t, returnsRows("/* comment only */"))
	assert.False(t, returnsRows(""))
}
