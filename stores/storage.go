package stores

import (
	"flyer-server/core"
	"flyer-server/stores/aws"
	"flyer-server/stores/filesystem"
	"flyer-server/stores/memory"
	"flyer-server/stores/redis"
	"flyer-server/stores/sqldb"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// GetStore picks the export backend from STORAGE_TYPE.
func GetStore() core.ExportStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.ExportStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite", "sqlite3":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "flyer.db"
		}
		driver := sqldb.DriverSQLite
		if storageType == "sqlite3" {
			driver = sqldb.DefaultSQLiteDriver()
		}
		storageField["dataSourceName"] = dataSourceName
		storageField["driver"] = driver
		store = sqldb.NewStore(driver, dataSourceName)
	case "postgres", "mysql":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			logrus.Fatalf("DATA_SOURCE_NAME environment variable must be set for %s storage type", storageType)
		}
		driver := sqldb.DriverMySQL
		if storageType == "postgres" {
			driver = sqldb.DriverPostgres
		}
		storageField["driver"] = driver
		store = sqldb.NewStore(driver, dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}

// GetRoomRegistry returns the redis registry when REDIS_ADDR is set. Otherwise
// the export store doubles as the registry if it can, and an in-memory one is
// used if it cannot.
func GetRoomRegistry(store core.ExportStore) core.RoomRegistry {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
		if err != nil {
			db = 0
		}
		return redis.NewRegistry(redis.Conf{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		})
	}
	if registry, ok := store.(core.RoomRegistry); ok {
		return registry
	}
	logrus.Info("Storage keeps no room registry, using in-memory registry")
	return memory.NewStore()
}
