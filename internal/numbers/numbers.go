// Package numbers generates the human-readable sequential identifiers
// used for purchase orders and stock transactions.
package numbers

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Next returns the next identifier under the year-month prefix
// "PREFIX-YYYYMM-", e.g. "PO-202608-0003". It scans the given column for
// the highest existing sequence; if the scan fails it falls back to a
// timestamp suffix so creation never blocks on a broken counter.
func Next(db *gorm.DB, table, column, prefix string) string {
	head := fmt.Sprintf("%s-%s-", prefix, time.Now().Format("200601"))

	var last sql.NullString
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s WHERE %s LIKE ?", column, table, column)
	if err := db.Raw(query, head+"%").Scan(&last).Error; err != nil {
		return fmt.Sprintf("%s%d", head, time.Now().Unix())
	}

	seq := 1
	if last.Valid && len(last.String) > len(head) {
		if n, err := strconv.Atoi(last.String[len(head):]); err == nil {
			seq = n + 1
		}
	}

	return fmt.Sprintf("%s%04d", head, seq)
}
