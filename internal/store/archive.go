package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/expediterhq/loadpilot/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS loads (
    id                     TEXT PRIMARY KEY,
    date                   TEXT NOT NULL,
    load_number            TEXT,
    company_name           TEXT,
    origin                 TEXT,
    destination            TEXT,
    total_miles            REAL NOT NULL,
    loaded_miles           REAL NOT NULL,
    deadhead_miles         REAL NOT NULL,
    total_charge           REAL NOT NULL,
    net_profit             REAL NOT NULL,
    rate_per_mile          REAL NOT NULL,
    operating_cost         REAL NOT NULL,
    fuel_cost              REAL NOT NULL,
    tolls                  REAL NOT NULL,
    other_costs            REAL NOT NULL,
    payment_status         TEXT,
    payment_date           TEXT,
    expected_payment_date  TEXT,
    actual_payment_date    TEXT
);

CREATE TABLE IF NOT EXISTS expenses (
    id           TEXT PRIMARY KEY,
    date         TEXT NOT NULL,
    amount       REAL NOT NULL,
    type         TEXT,
    category     TEXT,
    description  TEXT,
    deductible   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meta (
    key    TEXT PRIMARY KEY,
    value  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loads_date ON loads(date);
CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);
`

// Archive is the SQLite-backed snapshot of the last successful remote fetch.
// The loader overwrites it wholesale on success; offline reads serve from it.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive database at the given path.
func OpenArchive(dbPath string) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// ReplaceAll overwrites the archived snapshot in one transaction.
func (a *Archive) ReplaceAll(loads []model.LoadRecord, expenses []model.ExpenseRecord) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM loads"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM expenses"); err != nil {
		return err
	}

	for _, l := range loads {
		_, err := tx.Exec(`INSERT INTO loads
			(id, date, load_number, company_name, origin, destination,
			 total_miles, loaded_miles, deadhead_miles, total_charge, net_profit,
			 rate_per_mile, operating_cost, fuel_cost, tolls, other_costs,
			 payment_status, payment_date, expected_payment_date, actual_payment_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Date, l.LoadNumber, l.CompanyName, l.Origin, l.Destination,
			l.TotalMiles, l.LoadedMiles, l.DeadheadMiles, l.TotalCharge, l.NetProfit,
			l.RatePerMile, l.OperatingCost, l.FuelCost, l.Tolls, l.OtherCosts,
			l.PaymentStatus, l.PaymentDate, l.ExpectedPaymentDate, l.ActualPaymentDate,
		)
		if err != nil {
			return err
		}
	}

	for _, e := range expenses {
		deductible := 0
		if e.Deductible {
			deductible = 1
		}
		_, err := tx.Exec(`INSERT INTO expenses
			(id, date, amount, type, category, description, deductible)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Date, e.Amount, e.Type, e.Category, e.Description, deductible,
		)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_synced', ?)`, now); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAll reads the archived snapshot.
func (a *Archive) LoadAll() ([]model.LoadRecord, []model.ExpenseRecord, error) {
	rows, err := a.db.Query(`SELECT
		id, date, load_number, company_name, origin, destination,
		total_miles, loaded_miles, deadhead_miles, total_charge, net_profit,
		rate_per_mile, operating_cost, fuel_cost, tolls, other_costs,
		payment_status, payment_date, expected_payment_date, actual_payment_date
		FROM loads ORDER BY date DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var loads []model.LoadRecord
	for rows.Next() {
		var l model.LoadRecord
		var loadNumber, companyName, origin, destination sql.NullString
		var paymentStatus, paymentDate, expectedDate, actualDate sql.NullString
		err := rows.Scan(
			&l.ID, &l.Date, &loadNumber, &companyName, &origin, &destination,
			&l.TotalMiles, &l.LoadedMiles, &l.DeadheadMiles, &l.TotalCharge, &l.NetProfit,
			&l.RatePerMile, &l.OperatingCost, &l.FuelCost, &l.Tolls, &l.OtherCosts,
			&paymentStatus, &paymentDate, &expectedDate, &actualDate,
		)
		if err != nil {
			return nil, nil, err
		}
		l.LoadNumber = loadNumber.String
		l.CompanyName = companyName.String
		l.Origin = origin.String
		l.Destination = destination.String
		l.PaymentStatus = paymentStatus.String
		l.PaymentDate = paymentDate.String
		l.ExpectedPaymentDate = expectedDate.String
		l.ActualPaymentDate = actualDate.String
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	expRows, err := a.db.Query(`SELECT id, date, amount, type, category, description, deductible
		FROM expenses ORDER BY date DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = expRows.Close() }()

	var expenses []model.ExpenseRecord
	for expRows.Next() {
		var e model.ExpenseRecord
		var typ, category, description sql.NullString
		var deductible int
		err := expRows.Scan(&e.ID, &e.Date, &e.Amount, &typ, &category, &description, &deductible)
		if err != nil {
			return nil, nil, err
		}
		e.Type = typ.String
		e.Category = category.String
		e.Description = description.String
		e.Deductible = deductible != 0
		expenses = append(expenses, e)
	}

	return loads, expenses, expRows.Err()
}

// LastSynced returns when the archive was last overwritten, or the zero time.
func (a *Archive) LastSynced() time.Time {
	var value string
	err := a.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_synced'`).Scan(&value)
	if err != nil {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

// ArchiveDir returns the platform-appropriate cache directory.
func ArchiveDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "loadpilot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "loadpilot")
}

// ArchivePath returns the full path to the archive database.
func ArchivePath() string {
	return filepath.Join(ArchiveDir(), "records.db")
}
