package decipher

import (
	"errors"

	"github.com/ytget/sigdecipher/internal/logger"
)

// ExtractHelpers resolves every function main calls, directly or through
// other helpers, against script. The table holds main under MainEntry and
// under its own name.
func ExtractHelpers(main *FunctionDescriptor, script string) (*FunctionTable, error) {
	return extractHelpers(main, script, logger.WithComponent(logger.ComponentExtractor))
}

func extractHelpers(main *FunctionDescriptor, script string, log *logger.ComponentLogger) (*FunctionTable, error) {
	table := newFunctionTable(main)
	queue := []*FunctionDescriptor{main}

	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		for _, name := range scanCalls(fn.Body) {
			if _, ok := table.Functions[name]; ok {
				continue
			}
			helper, err := findDefinition(script, name)
			if err != nil {
				var de *definitionError
				if errors.As(err, &de) && de.found {
					return nil, NewError(ErrCodeEntryBodyMalformed, de.reason, name)
				}
				return nil, NewError(ErrCodeHelperNotFound, "no declaration of "+name+" called from "+fn.Name, name)
			}
			log.Debug("helper extracted", logger.Fields{"name": name, "caller": fn.Name, "params": len(helper.Parameters)})
			table.Functions[name] = helper
			queue = append(queue, helper)
		}
	}
	return table, nil
}
