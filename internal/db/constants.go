package db

// timeLayout is the stored timestamp format. SQLite date functions understand it
// and it sorts lexically.
const timeLayout = "2006-01-02 15:04:05"

// snapshotColumns is the column list shared by snapshot selects.
const snapshotColumns = `id, recorded_at, total_books, priced_books, in_stock, out_of_stock,
	min_price, max_price, avg_price`
