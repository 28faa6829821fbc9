package parking

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/logging"
)

const (
	msgInvalidCommand = "Invalid command"
	msgLotFull        = "Sorry, parking lot is full"
	msgInvalidSlot    = "Invalid slot number"
	msgNotFound       = "Not found"
	statusHeader      = "Slot No.\tRegistration No\tType\tColor"
)

var (
	errInvalidCommand = errors.New("invalid command")
	errExit           = errors.New("exit")
)

type command struct {
	name     string
	arity    int
	needsLot bool
	run      func(s *Shell, ctx context.Context, args []string) error
}

var commandTable = map[string]command{}

func init() {
	for _, c := range []command{
		{name: "create_parking_lot", arity: 1, run: (*Shell).createParkingLot},
		{name: "park", arity: 3, needsLot: true, run: (*Shell).park},
		{name: "leave", arity: 1, needsLot: true, run: (*Shell).leave},
		{name: "status", arity: 0, needsLot: true, run: (*Shell).status},
		{name: "type_of_vehicles", arity: 1, needsLot: true, run: (*Shell).typeOfVehicles},
		{name: "registration_numbers_for_vehicles_with_plate", arity: 1, needsLot: true, run: (*Shell).registrationsWithPlate},
		{name: "registration_numbers_for_vehicles_with_color", arity: 1, needsLot: true, run: (*Shell).registrationsWithColor},
		{name: "slot_numbers_for_vehicles_with_color", arity: 1, needsLot: true, run: (*Shell).slotsWithColor},
		{name: "slot_number_for_registration_number", arity: 1, needsLot: true, run: (*Shell).slotForRegistration},
		{name: "exit", arity: 0, run: func(*Shell, context.Context, []string) error { return errExit }},
	} {
		commandTable[c.name] = c
	}
}

// execute dispatches one tokenized line and reports whether the session
// should end.
func (s *Shell) execute(ctx context.Context, fields []string) bool {
	name := strings.ToLower(fields[0])
	args := fields[1:]

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("command.name", name))

	cmd, ok := commandTable[name]
	switch {
	case !ok:
		span.AddEvent("unknown_command")
		return s.invalid(ctx, name, "unknown command")
	case len(args) != cmd.arity:
		span.AddEvent("invalid_arguments")
		return s.invalid(ctx, name, "wrong number of arguments")
	case cmd.needsLot && !s.session.Active():
		span.AddEvent("parking_lot_not_created")
		return s.invalid(ctx, name, "parking lot not created")
	}

	err := cmd.run(s, ctx, args)
	switch {
	case err == nil:
		logging.Debugf(ctx, "command %s done", name)
		return false
	case errors.Is(err, errExit):
		span.AddEvent("session_exit")
		return true
	default:
		span.RecordError(err)
		return s.invalid(ctx, name, err.Error())
	}
}

func (s *Shell) invalid(ctx context.Context, name, reason string) bool {
	logging.WithFields(ctx, map[string]any{
		"command": name,
		"reason":  reason,
	}).Warn("rejected command")
	s.println(msgInvalidCommand)
	return false
}

func parseInt(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errInvalidCommand
	}
	return n, nil
}

func (s *Shell) createParkingLot(ctx context.Context, args []string) error {
	capacity, err := parseInt(args[0])
	if err != nil {
		return err
	}
	if err := s.session.Create(ctx, capacity); err != nil {
		return err
	}
	s.printf("Created a parking lot with %d slots\n", capacity)
	return nil
}

func (s *Shell) park(ctx context.Context, args []string) error {
	return s.session.Update(func(lot *InstrumentedParkingLot) error {
		slotNumber, err := lot.Park(ctx, args[0], args[1], args[2])
		if errors.Is(err, ErrLotFull) {
			s.println(msgLotFull)
			return nil
		}
		if err != nil {
			return err
		}
		s.printf("Allocated slot number: %d\n", slotNumber)
		return nil
	})
}

func (s *Shell) leave(ctx context.Context, args []string) error {
	slotNumber, err := parseInt(args[0])
	if err != nil {
		return err
	}
	return s.session.Update(func(lot *InstrumentedParkingLot) error {
		if _, err := lot.Leave(ctx, slotNumber); err != nil {
			if errors.Is(err, ErrInvalidSlot) {
				s.println(msgInvalidSlot)
				return nil
			}
			return err
		}
		s.printf("Slot number %d is free\n", slotNumber)
		return nil
	})
}

func (s *Shell) status(ctx context.Context, _ []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		s.println(statusHeader)
		for _, slot := range lot.Status(ctx) {
			s.printf("%d\t%s\t%s\t%s\n", slot.Number, slot.Vehicle.RegistrationNumber, slot.Vehicle.Type, slot.Vehicle.Color)
		}
		return nil
	})
}

func (s *Shell) typeOfVehicles(ctx context.Context, args []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		s.println(lot.CountByType(ctx, args[0]))
		return nil
	})
}

func (s *Shell) registrationsWithPlate(ctx context.Context, args []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		s.println(strings.Join(lot.RegistrationsByPlatePrefix(ctx, args[0]), ", "))
		return nil
	})
}

func (s *Shell) registrationsWithColor(ctx context.Context, args []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		s.println(strings.Join(lot.RegistrationsByColor(ctx, args[0]), ", "))
		return nil
	})
}

func (s *Shell) slotsWithColor(ctx context.Context, args []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		s.println(joinInts(lot.SlotsByColor(ctx, args[0])))
		return nil
	})
}

func (s *Shell) slotForRegistration(ctx context.Context, args []string) error {
	return s.session.View(func(lot *InstrumentedParkingLot) error {
		slotNumber, err := lot.SlotForRegistration(ctx, args[0])
		if err != nil {
			s.println(msgNotFound)
			return nil
		}
		s.println(slotNumber)
		return nil
	})
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
