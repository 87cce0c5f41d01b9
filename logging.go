package buildops

import "go.uber.org/zap"

// operationFields renders a Descriptor's identifying information as zap
// fields, shared by every diagnostic log statement the executor emits about
// one specific operation.
func operationFields(d Descriptor) []zap.Field {
	fields := []zap.Field{
		zap.Int64("operation_id", int64(d.ID)),
		zap.String("display_name", d.DisplayName),
		zap.String("operation_type", d.OperationType.String()),
	}
	if d.ParentID != nil {
		fields = append(fields, zap.Int64("parent_operation_id", int64(*d.ParentID)))
	}
	return fields
}
