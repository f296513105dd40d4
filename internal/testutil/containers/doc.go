// Package containers starts throwaway backing services for integration tests
// using testcontainers-go:
//
//   - MySQL 8.0 for the alert store
//   - Eclipse Mosquitto for MQTT facility automation
//   - ntfy as a shoutrrr target for authority notifications
//
// Integration tests using this package carry the "integration" build tag and
// usually start containers once per package:
//
//	var mysqlContainer *containers.MySQLContainer
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    var err error
//	    mysqlContainer, err = containers.NewMySQLContainer(ctx, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    _ = mysqlContainer.Terminate(ctx)
//	    os.Exit(code)
//	}
//
// Run them with:
//
//	go test -tags=integration ./...
package containers
