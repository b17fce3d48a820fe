package sqlstore

import "github.com/jmoiron/sqlx"

// Timestamps are unix milliseconds (UTC).
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS profiles(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  fullname TEXT NOT NULL,
  user_type TEXT NOT NULL CHECK (user_type IN ('donor','recipient')),
  organization_name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles(LOWER(email));

CREATE TABLE IF NOT EXISTS food_listings(
  id TEXT PRIMARY KEY,
  donor_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit TEXT NOT NULL,
  event_type TEXT NOT NULL,
  location TEXT NOT NULL,
  expiry_time INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available','reserved','completed')),
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_donor      ON food_listings(donor_id);
CREATE INDEX IF NOT EXISTS idx_listings_status     ON food_listings(status);
CREATE INDEX IF NOT EXISTS idx_listings_event_type ON food_listings(event_type);
CREATE INDEX IF NOT EXISTS idx_listings_location   ON food_listings(location);

CREATE TABLE IF NOT EXISTS food_requests(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL REFERENCES food_listings(id) ON DELETE RESTRICT,
  recipient_id TEXT NOT NULL,
  requested_quantity INTEGER NOT NULL CHECK (requested_quantity > 0),
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted','rejected')),
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_listing   ON food_requests(listing_id);
CREATE INDEX IF NOT EXISTS idx_requests_recipient ON food_requests(recipient_id);

CREATE TABLE IF NOT EXISTS listing_events(
  event_id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  request_id TEXT,
  actor_id TEXT,
  event_type TEXT NOT NULL,
  event_data TEXT,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_listing ON listing_events(listing_id);
`

func ensureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
