package servo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// STS servos count 4096 positions per full turn. Degree angles are
// centered on the servo midpoint: 90 degrees maps to count 2048.
const (
	countsPerTurn = 4096
	centerCounts  = 2048
	centerDegrees = 90
)

func degreesToCounts(angle int) int {
	return centerCounts + (angle-centerDegrees)*countsPerTurn/360
}

// BusWriter drives servos over an STS serial bus.
type BusWriter struct {
	bus    *feetech.Bus
	group  *feetech.ServoGroup
	logger *slog.Logger
}

func newBusWriter(ctx context.Context, cfg Config, logger *slog.Logger) (*BusWriter, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus %s: %w", cfg.Port, err)
	}

	group := feetech.NewServoGroupByIDs(bus, cfg.IDs...)
	if err := group.EnableAll(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable torque: %w", err)
	}

	logger.Info("servo bus ready", "port", cfg.Port, "baud", cfg.BaudRate, "ids", cfg.IDs)

	return &BusWriter{bus: bus, group: group, logger: logger}, nil
}

// WriteAngle moves one servo to the given angle in degrees.
func (w *BusWriter) WriteAngle(ctx context.Context, id, angle int) error {
	positions := feetech.PositionMap{id: degreesToCounts(angle)}
	if err := w.group.SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("write servo %d: %w", id, err)
	}
	return nil
}

// Name returns "feetech".
func (w *BusWriter) Name() string {
	return "feetech"
}

// Close releases torque and closes the bus.
func (w *BusWriter) Close() error {
	if err := w.group.DisableAll(context.Background()); err != nil {
		w.logger.Warn("disable torque", "error", err)
	}
	return w.bus.Close()
}

var _ PositionWriter = (*BusWriter)(nil)
