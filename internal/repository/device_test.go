package repository

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *DeviceRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewDeviceRepository(db, zap.NewNop())
	return db, mock, repo
}

func deviceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"device_id", "tenant_id", "serial_number", "uid",
		"device_name", "status", "firmware_version", "bound_user_id",
	})
}

func TestGetDeviceBySerialNumber_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	userID := "user-1"
	rows := deviceRows().
		AddRow("device-1", "tenant-1", "WB-2024-001", "a1b2c3", "Band A", "active", "1.4.2", &userID)

	mock.ExpectQuery(`SELECT`).
		WithArgs("WB-2024-001").
		WillReturnRows(rows)

	device, err := repo.GetDeviceBySerialNumber("WB-2024-001")

	require.NoError(t, err)
	assert.Equal(t, "device-1", device.DeviceID)
	assert.Equal(t, "tenant-1", device.TenantID)
	assert.Equal(t, "a1b2c3", device.UID)
	require.NotNil(t, device.BoundUserID)
	assert.Equal(t, "user-1", *device.BoundUserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDeviceBySerialNumber_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("WB-MISSING").
		WillReturnRows(deviceRows())

	device, err := repo.GetDeviceBySerialNumber("WB-MISSING")

	require.Error(t, err)
	assert.Nil(t, device)
	assert.Contains(t, err.Error(), "device not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDeviceByUID_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := deviceRows().
		AddRow("device-2", "tenant-1", "WB-2024-002", "d4e5f6", "Band B", "active", "1.4.2", nil)

	mock.ExpectQuery(`SELECT`).
		WithArgs("d4e5f6").
		WillReturnRows(rows)

	device, err := repo.GetDeviceByUID("d4e5f6")

	require.NoError(t, err)
	assert.Equal(t, "device-2", device.DeviceID)
	assert.Nil(t, device.BoundUserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
