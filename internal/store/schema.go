package store

import "context"

// schema is the full DDL, idempotent so it can run at startup and in
// integration test setup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL DEFAULT '',
	phone_number  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	verified      BOOLEAN NOT NULL DEFAULT FALSE,
	role          TEXT NOT NULL DEFAULT 'ROLE_SHOPPER',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admins (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	admin_name    TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'ROLE_ADMIN',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS otp_records (
	id         BIGSERIAL PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	code       TEXT NOT NULL,
	purpose    TEXT NOT NULL,
	expires_at BIGINT NOT NULL,
	used       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS categories (
	id        BIGSERIAL PRIMARY KEY,
	name      TEXT NOT NULL UNIQUE,
	image_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
	id               BIGSERIAL PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	mrp_price        BIGINT NOT NULL,
	selling_price    BIGINT NOT NULL,
	discount_percent INT NOT NULL DEFAULT 0,
	color            TEXT NOT NULL DEFAULT '',
	brand            TEXT NOT NULL DEFAULT '',
	category_id      BIGINT NOT NULL REFERENCES categories(id),
	quantity         INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_images (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	position   INT NOT NULL DEFAULT 0,
	url        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS carts (
	id                  BIGSERIAL PRIMARY KEY,
	user_id             BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	total_item          INT NOT NULL DEFAULT 0,
	total_mrp_price     BIGINT NOT NULL DEFAULT 0,
	total_selling_price BIGINT NOT NULL DEFAULT 0,
	discount            INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cart_items (
	id            BIGSERIAL PRIMARY KEY,
	cart_id       BIGINT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
	product_id    BIGINT NOT NULL REFERENCES products(id),
	quantity      INT NOT NULL CHECK (quantity > 0),
	mrp_price     BIGINT NOT NULL,
	selling_price BIGINT NOT NULL,
	UNIQUE (cart_id, product_id)
);

CREATE TABLE IF NOT EXISTS addresses (
	id          BIGSERIAL PRIMARY KEY,
	locality    TEXT NOT NULL DEFAULT '',
	street      TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	mobile      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS orders (
	id                  BIGSERIAL PRIMARY KEY,
	user_id             BIGINT NOT NULL REFERENCES users(id),
	address_id          BIGINT NOT NULL REFERENCES addresses(id),
	total_mrp_price     BIGINT NOT NULL,
	total_selling_price BIGINT NOT NULL,
	discount            BIGINT NOT NULL DEFAULT 0,
	total_item          INT NOT NULL,
	order_status        TEXT NOT NULL,
	payment_status      TEXT NOT NULL,
	payment_method      TEXT NOT NULL,
	order_date          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deliver_date        TIMESTAMPTZ NOT NULL
);

-- product_id is deliberately not a foreign key: order items are price
-- snapshots and must survive product deletion.
CREATE TABLE IF NOT EXISTS order_items (
	id            BIGSERIAL PRIMARY KEY,
	order_id      BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id    BIGINT NOT NULL,
	quantity      INT NOT NULL,
	mrp_price     BIGINT NOT NULL,
	selling_price BIGINT NOT NULL,
	user_id       BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_orders (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL REFERENCES users(id),
	order_id        BIGINT NOT NULL UNIQUE REFERENCES orders(id),
	amount          BIGINT NOT NULL,
	payment_method  TEXT NOT NULL,
	payment_link_id TEXT NOT NULL DEFAULT '',
	payment_url     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
	id              BIGSERIAL PRIMARY KEY,
	order_id        BIGINT NOT NULL REFERENCES orders(id),
	user_id         BIGINT NOT NULL,
	amount          BIGINT NOT NULL,
	status          TEXT NOT NULL,
	payment_id      TEXT NOT NULL DEFAULT '',
	payment_link_id TEXT NOT NULL DEFAULT '',
	payment_method  TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- At most one settled transaction per order.
CREATE UNIQUE INDEX IF NOT EXISTS uq_transactions_order_settled
	ON transactions (order_id) WHERE status <> 'FAILED';

CREATE TABLE IF NOT EXISTS wishlists (
	id      BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS wishlist_products (
	wishlist_id BIGINT NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
	product_id  BIGINT NOT NULL REFERENCES products(id),
	PRIMARY KEY (wishlist_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (order_status);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id);
`

// InitSchema creates all tables and indexes if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
