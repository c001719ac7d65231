package websocket

import (
	"fmt"
	"reflect"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

// ackInvoker calls a client acknowledgement whatever its Go signature.
type ackInvoker func(err error, payload map[string]any)

// extractAck splits a trailing acknowledgement callback off the event args.
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	ack = wrapAck(datas[len(datas)-1])
	if ack == nil {
		return nil, datas
	}
	return ack, datas[:len(datas)-1]
}

func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}
	value := reflect.ValueOf(candidate)
	if value.Kind() != reflect.Func {
		return nil
	}
	typ := value.Type()
	return func(err error, payload map[string]any) {
		value.Call(buildAckArgs(typ, err, payload))
	}
}

// buildAckArgs maps (err, payload) onto the callback's parameters. A single
// parameter receives the error when there is one and the payload otherwise.
func buildAckArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	numIn := typ.NumIn()
	args := make([]reflect.Value, numIn)
	for i := range numIn {
		var v any
		switch {
		case numIn == 1 && err != nil:
			v = err
		case numIn == 1:
			v = payload
		case i == 0:
			v = err
		case i == 1:
			v = payload
		}
		args[i] = coerceValue(v, typ.In(i))
	}
	return args
}

func coerceValue(value any, target reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(target)
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(target):
		return rv
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target)
	case target.Kind() == reflect.Interface && (rv.Type().Implements(target) || target.NumMethod() == 0):
		return rv
	case target.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(value)).Convert(target)
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String:
		if m, ok := value.(map[string]any); ok {
			return convertMap(m, target)
		}
	}
	return reflect.Zero(target)
}

// convertMap copies source into a map of the target type. Nil values become the
// element's zero value; values that can be neither assigned nor converted to the
// element type are dropped instead of panicking in SetMapIndex.
func convertMap(source map[string]any, target reflect.Type) reflect.Value {
	result := reflect.MakeMapWithSize(target, len(source))
	for key, val := range source {
		k := reflect.ValueOf(key).Convert(target.Key())
		if val == nil {
			result.SetMapIndex(k, reflect.Zero(target.Elem()))
			continue
		}
		v := reflect.ValueOf(val)
		if !v.Type().AssignableTo(target.Elem()) {
			if !v.Type().ConvertibleTo(target.Elem()) {
				continue
			}
			v = v.Convert(target.Elem())
		}
		result.SetMapIndex(k, v)
	}
	return result
}

// respondWithAck answers through the callback when the client sent one. A
// non-empty event is emitted to the socket as well.
func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}
	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
