// Package testing provides a standardised conformance suite for
// implementations of the medium.IMedium interface.
//
// The suite checks the storage contract (set, get, remove, key listing,
// values with special characters) as well as the cross-context contract:
// items are shared by all contexts of an origin, and every context is told
// about changes made by the others but never about its own.
//
// Example usage:
//
//	func Test(t *testing.T) {
//		mediumtesting.RunMediumTests(t, "MyMedium", func(t *testing.T) func() medium.IMedium {
//			dir := t.TempDir()
//			return func() medium.IMedium {
//				m, err := mymedium.Open(dir)
//				require.NoError(t, err)
//				t.Cleanup(func() { _ = m.Close() })
//				return m
//			}
//		})
//	}
package testing
