package glb

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/lunfardo314/cellabi/global"
	"github.com/lunfardo314/cellabi/pending"
	"github.com/lunfardo314/unitrie/adaptors/badger_adaptor"
	"github.com/spf13/viper"
)

const DefaultPendingDBName = "cabi.pending.db"

var pendingDB *badger.DB

func PendingDBName() string {
	if ret := viper.GetString("pending.db"); ret != "" {
		return ret
	}
	return DefaultPendingDBName
}

func OpenPendingStore() *pending.Store {
	dbName := PendingDBName()
	Verbosef("pending calls database: %s", dbName)
	pendingDB = badger_adaptor.MustCreateOrOpenBadgerDB(dbName)
	return pending.New(badger_adaptor.New(pendingDB), global.NewEnvironment(Logger(), nil))
}

func CloseDatabases() {
	if pendingDB != nil {
		_ = pendingDB.Close()
	}
}
