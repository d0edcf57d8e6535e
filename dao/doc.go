// Package dao provides a generic data access object for entities mapped with
// bun.
//
// A DAO is created once per entity type and identifier type:
//
//	users, err := dao.New[User, int64](factory,
//		dao.WithDefaultSortCriteria(dao.Asc("LastName"), dao.Asc("FirstName")),
//	)
//
// Construction resolves the entity metadata through the SessionProvider and
// fails with a configuration error when the type is not mapped, has no single
// primary key, or a default sort property is unknown. The delete-by-id
// statement and the default ORDER BY clause are built at that point too.
//
// Every operation runs against the session bound to the context (see package
// session). Loaded instances are tracked by that session, so two lookups of
// the same identifier return the same pointer until the instance is evicted:
//
//	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
//		u, err := users.FindByID(ctx, 42)
//		if err != nil || u == nil {
//			return err
//		}
//		u.Email = "new@example.com"
//		_, err = users.Update(ctx, u)
//		return err
//	})
//
// # Queries
//
// FindAll, FindByExample and FindPage without criteria use the default sort
// criteria. FindPage treats maxResults == 0 as "no limit". FindByExample
// ignores the identifier, zero values and collection fields, and matches
// strings as case-insensitive substrings.
//
// # Writes
//
// Update, Delete, Refresh and Reattach require a persistent object, one with
// a non-zero identifier. Merge and Save accept transient objects. Merge copies
// state shallowly: pointer, slice and map fields are shared with the argument.
//
// Readable and Writeable can be used on their own; GenericDAO combines both
// over a single resolved metadata.
package dao
