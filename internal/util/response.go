package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

func FieldErrors(message string, fields map[string]string) Envelope {
	return Envelope{"error": message, "fields": fields}
}

func Data(value any) Envelope {
	return Envelope{"data": value}
}
