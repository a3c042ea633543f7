package store

// Compile-time assertion that PostgresStore satisfies Store. Behavioral
// coverage for each method lives in postgres_test.go against pgxmock;
// there's no in-process driver for integration-style coverage without a
// live Postgres instance.
var _ Store = (*PostgresStore)(nil)
