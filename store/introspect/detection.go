package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/n-r-w/zfcore/store/ddl"
)

func detectDialect(ctx context.Context, db *sql.DB) (ddl.Dialect, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}

	comment = strings.ToLower(comment)

	switch {
	case strings.Contains(comment, "mariadb"):
		return ddl.DialectMariaDB, getVersion(ctx, db), nil
	case strings.Contains(comment, "tidb"):
		return ddl.DialectTiDB, getVersion(ctx, db), nil
	default:
		return ddl.DialectMySQL, getVersion(ctx, db), nil
	}
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}
