package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Device 穿戴设备模型
type Device struct {
	DeviceID        string
	TenantID        string
	SerialNumber    string
	UID             string
	DeviceName      string
	Status          string
	FirmwareVersion string
	BoundUserID     *string
}

// DeviceRepository 设备仓库
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

const deviceColumns = `
		d.device_id,
		d.tenant_id,
		d.serial_number,
		d.uid,
		d.device_name,
		d.status,
		d.firmware_version,
		d.bound_user_id
`

func (r *DeviceRepository) scanDevice(row *sql.Row, ident string) (*Device, error) {
	device := &Device{}
	err := row.Scan(
		&device.DeviceID,
		&device.TenantID,
		&device.SerialNumber,
		&device.UID,
		&device.DeviceName,
		&device.Status,
		&device.FirmwareVersion,
		&device.BoundUserID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device not found: %s", ident)
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	return device, nil
}

// GetDeviceBySerialNumber 根据序列号获取设备
func (r *DeviceRepository) GetDeviceBySerialNumber(serialNumber string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices d
		WHERE d.serial_number = $1
		LIMIT 1
	`
	return r.scanDevice(r.db.QueryRow(query, serialNumber), serialNumber)
}

// GetDeviceByUID 根据 UID 获取设备
func (r *DeviceRepository) GetDeviceByUID(uid string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices d
		WHERE d.uid = $1
		LIMIT 1
	`
	return r.scanDevice(r.db.QueryRow(query, uid), uid)
}
