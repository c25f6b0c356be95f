package env

// Database is a Named Database Handle: a logical sub-map inside an
// Environment, identified by name (the empty name denotes the default
// sub-database). Unlike the LMDB/MDBX-style engine this spec was modeled
// on, bbolt addresses sub-databases ("buckets") directly by name rather
// than through a cached integer descriptor, so Database's "caching" is
// simply holding the name bytes once rather than reallocating them per
// call.
type Database struct {
	env  *Environment
	name []byte
}

// defaultBucketName is the physical bbolt bucket name substituted for the
// empty (default) database name: bbolt's CreateBucketIfNotExists rejects an
// empty name with ErrBucketNameRequired, so the logical default database
// needs a reserved non-empty name underneath. No check rejects a
// caller-chosen name equal to this string; such a name opens the same
// bucket as the default database.
const defaultBucketName = "\x00default"

// OpenDatabase binds name inside e, enforcing e's MaxDBs option. The
// Database's lifecycle is tied to e: it does nothing on its own and holds
// no separate reference count. The empty name denotes the default
// sub-database and is stored under a reserved bucket name, since bbolt
// itself requires a non-empty bucket name.
func OpenDatabase(e *Environment, name string) (*Database, error) {
	if err := e.registerDB(name); err != nil {
		return nil, err
	}
	bucketName := name
	if bucketName == "" {
		bucketName = defaultBucketName
	}
	return &Database{env: e, name: []byte(bucketName)}, nil
}

// Env returns the parent Environment.
func (d *Database) Env() *Environment { return d.env }

// Name returns the raw bucket name bytes.
func (d *Database) Name() []byte { return d.name }

// NameString returns the raw bucket name as a string (the reserved
// defaultBucketName for the default database).
func (d *Database) NameString() string { return string(d.name) }
